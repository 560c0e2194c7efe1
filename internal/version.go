package internal

// Version is the posttranslate release version
const Version = "0.3.0"
