// Package language normalizes the language hint handed to the transcription
// engine and renders detected languages for log output.
//
// The engine mostly expects ISO 639-1 codes but also knows a few of its own
// ("jw", "haw", "yue"), which pass through untouched. Users may also type ISO
// 639-2 codes, BCP 47 tags such as "pt-BR", or English words ("german"); those
// collapse to the engine code when one exists.
package language
