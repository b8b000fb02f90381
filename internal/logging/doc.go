// Package logging provides structured logging for oxistream, built on zap.
//
// Logging is silent by default so normal console output stays clean; set
// the OXISTREAM_LOG_LEVEL environment variable (debug, info, warn, error)
// or pass an explicit level to Initialize to enable it. The debug level
// includes hex dumps of raw transport chunks, which is the first thing to
// reach for when frame synchronization looks wrong.
package logging
