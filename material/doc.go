// Package material compiles material files into shader programs.
//
// A material file is line oriented. The first word of a line is matched
// against a fixed set of keywords; every other line is shader source that is
// appended to the section opened last.
//
//	SHADER name                 start a new program
//	VERTEXFUNCTIONS             helper functions shared by later vertex stages
//	PIXELFUNCTIONS              helper functions shared by later pixel stages
//	COMPUTEFUNCTIONS            helper functions shared by later compute stages
//	VERTEX / PIXEL / COMPUTE    body of the stage's main function
//	UNIFORMS mvp col tex0 ...   predefined and texture uniforms
//	UNIFORM type name           any other uniform
//	INPUTS apos:3 atc:2 ...     attributes (in VERTEX) or varyings
//	LAYOUT x y                  compute work group size
//
// A program is compiled and registered when the next SHADER or functions
// section starts, or when the input ends.
package material
