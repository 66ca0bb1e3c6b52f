// Package anyctc decodes the outputs of recognizers which
// are trained with Connectionist Temporal Classification
// (CTC).
// For more information on CTC, see this paper:
// http://www.cs.toronto.edu/~graves/icml_2006.pdf.
//
// Every frame of an output sequence is a vector of log
// probabilities in which index 0 is the blank symbol.
// The remaining indices are the same as those of an
// anylabel.CTCCodec, so results can be turned into strings
// with the codec.
package anyctc
