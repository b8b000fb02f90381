// Package tui implements the live terminal dashboard.
//
// The dashboard subscribes to a running oximeter session and renders the
// latest reading full-screen: SpO2, pulse rate, signal and pleth bars,
// sensor status and the heartbeat tick. A spinner is shown until the
// first reading arrives. Quit with q or ctrl+c.
package tui
