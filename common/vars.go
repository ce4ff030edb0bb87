package common

// Version is overridden at build time with -ldflags "-X ...common.Version=...".
var Version = "dev"

const PackageName = "github.com/ruteri/amp-confirm"

// ClientScriptVersion is the action-file schema version this client implements.
// Action files declaring a lower min_supported_client_script_version are rejected.
const ClientScriptVersion = 2 // 0.0.2
