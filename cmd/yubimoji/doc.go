// Command yubimoji recognizes Japanese finger-spelling from hand landmarks.
//
// The serve command runs the camera pipeline and the HTTP API. The words
// commands manage the two-sign dictionary, classify sends one recorded
// landmark set to the classifier, and config manages the TOML file.
package main
