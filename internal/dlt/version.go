package dlt

// EngineVersion identifies the wire-engine release. Callers surface it
// through their own health/version reporting.
const EngineVersion = "1.0.0"

// Version reports the engine release string.
func Version() string {
	return EngineVersion
}
