// Package utils provides small conversion helpers shared by the feature packages:
// nullable JSON values, tag lists and timestamps.
package utils
