package settings

// Keys of the settings table.
const (
	KeyExplorerAPIKey = "explorer_api_key"
	KeyRPCURL         = "rpc_url"
	KeyAlpacaKey      = "alpaca_api_key"
	KeyAlpacaSecret   = "alpaca_api_secret"
)

var knownKeys = []string{KeyExplorerAPIKey, KeyRPCURL, KeyAlpacaKey, KeyAlpacaSecret}

type SettingsPayload struct {
	API *APISettings `json:"api,omitempty"`
}

type APISettings struct {
	ExplorerKey  string `json:"explorerKey"`
	RPCURL       string `json:"rpcUrl"`
	AlpacaKey    string `json:"alpacaKey"`
	AlpacaSecret string `json:"alpacaSecret"`
}

type SettingsResponse struct {
	API     map[string]string `json:"api,omitempty"`
	Message string            `json:"message,omitempty"`
}
