// Package ui prints what a backup run is doing: the sites found, one line
// per site pass, throttling notices and optional desktop notifications.
package ui
