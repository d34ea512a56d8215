// Package ruleset describes regulators declaratively: action names in bit order, a
// selector given by names or by preset, and conflicts between groups of names. Rule sets
// are read from YAML and compiled against a table of named actions.
//
// # File format
//
//	name: flags
//	width: 8
//	actions: [clear_flag, set_flag]
//	selector: [clear_flag]
//	presets:
//	  both: [clear_flag, set_flag]
//	conflicts:
//	  - from: [clear_flag]
//	    to: [set_flag]          # one bit-set
//	  - from: [clear_flag]
//	    to: [[set_flag], [log]] # several bit-sets
package ruleset
