package exdoc

// VERSION is reported by `exdoc version` and the language server
const VERSION = "0.1.0"
