package eventstore

// InstrumentationVersion is reported on every span and metric this
// module emits, so traces can be correlated back to the exact release
// that produced them.
const InstrumentationVersion = "0.1.0"
