package ir

// EngineVersion is the clientsync engine version.
const EngineVersion = "0.1.0"
