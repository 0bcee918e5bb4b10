package envfile

// dangerousVariables is the fixed set of variable names that are always
// stripped from parsed files, independent of the file's permission state.
// These names can influence dynamic loading, interpreter search paths, or
// shell startup behavior if propagated into a process environment.
var dangerousVariables = map[string]struct{}{
	// Dynamic linker hooks
	"LD_PRELOAD":                 {},
	"LD_LIBRARY_PATH":            {},
	"LD_AUDIT":                   {},
	"LD_DEBUG":                   {},
	"DYLD_INSERT_LIBRARIES":      {},
	"DYLD_LIBRARY_PATH":          {},
	"DYLD_FRAMEWORK_PATH":        {},
	"DYLD_FALLBACK_LIBRARY_PATH": {},

	// Command resolution and shell word splitting
	"PATH":   {},
	"IFS":    {},
	"CDPATH": {},

	// Shell startup hooks
	"ENV":            {},
	"BASH_ENV":       {},
	"ZDOTDIR":        {},
	"PROMPT_COMMAND": {},
	"PS4":            {},
	"SHELLOPTS":      {},

	// Interpreter search paths and option injection
	"PYTHONPATH":        {},
	"PYTHONSTARTUP":     {},
	"PERL5LIB":          {},
	"PERL5OPT":          {},
	"RUBYLIB":           {},
	"RUBYOPT":           {},
	"NODE_OPTIONS":      {},
	"CLASSPATH":         {},
	"JAVA_TOOL_OPTIONS": {},

	// Tool-chain environment overrides
	"GIT_SSH":         {},
	"GIT_SSH_COMMAND": {},
	"TMPDIR":          {},
}

// IsDangerousVariable reports whether name is on the fixed denylist.
func IsDangerousVariable(name string) bool {
	_, ok := dangerousVariables[name]
	return ok
}
