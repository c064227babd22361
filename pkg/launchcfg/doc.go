// Package launchcfg reconciles browser launch configuration fragments and
// checks them against a deny-list of sandbox-weakening flags.
//
// Three fragments are merged, lowest precedence first: built-in defaults,
// the process environment, and per-call options. Validation runs on the
// environment and per-call fragments only; the defaults are trusted.
//
// Invariants:
//   - Merge never mutates its inputs.
//   - Merging an empty overlay returns a copy equal to the base.
//   - For "args" and "ignoreDefaultArgs" an overlay flag replaces every base
//     flag with the same name, so "--window-size=1,1" can be overridden by
//     "--window-size=2,2".
//   - Fingerprint is stable for equal content and differs for unequal content.
//
// Usage:
//
//	user := launchcfg.MergeConfig(envFragment, callFragment)
//	if err := launchcfg.Validate(user, allow); err != nil {
//		return err
//	}
//	full := launchcfg.MergeConfig(launchcfg.Defaults(inContainer), user)
//	key := launchcfg.Fingerprint(full)
package launchcfg
