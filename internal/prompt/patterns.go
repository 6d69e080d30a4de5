package prompt

// pattern is an ordered list of section keys assembled into the system
// prompt.
type pattern []sectionKey

// initialPatterns is used on the first turn of a chain, and on every turn
// for providers with no native server-side state (spec.md §4.1 point 4):
// those providers never get the short continuation pattern, since they
// have nothing stored to omit it in favor of.
var initialPatterns = map[Mode]pattern{
	ModeSolver:             {sectionArcIntroduction, sectionModeTask, sectionJSONInstructions},
	ModeExplanation:        {sectionArcIntroduction, sectionModeTask, sectionJSONInstructions},
	ModeDebate:             {sectionModeRole, sectionDebateContext, sectionArcIntroduction, sectionJSONInstructions},
	ModeDiscussion:         {sectionModeRole, sectionRetryContext, sectionArcIntroduction, sectionJSONInstructions},
	ModeAlienCommunication: {sectionArcIntroduction, sectionModeRole, sectionModeTask, sectionJSONInstructions},
	ModeGepa:               {sectionArcIntroduction, sectionModeTask, sectionJSONInstructions},
}

// continuationPatterns is used only when the state is continuation AND the
// provider supports server-side state: the provider has already seen
// everything in initialPatterns minus these sections, so only the new
// task-specific instruction is re-sent.
var continuationPatterns = map[Mode]pattern{
	ModeSolver:             {sectionModeTask},
	ModeExplanation:        {sectionModeTask},
	ModeDebate:             {sectionModeRole, sectionDebateContext},
	ModeDiscussion:         {sectionModeRole, sectionRetryContext},
	ModeAlienCommunication: {sectionModeTask},
	ModeGepa:               {sectionModeTask},
}

// resolvePattern implements the (mode, state, provider-family) lookup
// table from spec.md §4.2, including the "no-native-chaining always gets
// the full initial pattern" override.
func resolvePattern(c Context) pattern {
	if c.State == StateContinuation && c.chainCapable() {
		if p, ok := continuationPatterns[c.Mode]; ok {
			return p
		}
	}
	return initialPatterns[c.Mode]
}
