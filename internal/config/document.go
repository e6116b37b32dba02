package config

// Config is the single hot-reloadable configuration document
// (gui_config.json). Field names mirror the document's JSON keys so the
// external GUI can rewrite the file directly.
type Config struct {
	Network       Network       `json:"network" validate:"required"`
	Auth          Auth          `json:"auth" validate:"required"`
	Observability Observability `json:"observability"`
	Mapping       Mapping       `json:"mapping"`
	Zai           Zai           `json:"zai"`
}

// Network holds listener and outbound transport settings.
type Network struct {
	Port           int    `json:"port" validate:"required,min=1,max=65535"`
	AllowLANAccess bool   `json:"allow_lan_access"`
	RequestTimeout string `json:"request_timeout" validate:"required"`
	UpstreamProxy  string `json:"upstream_proxy"`
}

// AuthMode enumerates the effective-mode derivation inputs of the auth
// middleware.
type AuthMode string

const (
	AuthOff             AuthMode = "off"
	AuthStrict          AuthMode = "strict"
	AuthAllExceptHealth AuthMode = "all_except_health"
	AuthAuto            AuthMode = "auto"
)

// Auth holds the gateway's own authentication policy.
type Auth struct {
	Mode   AuthMode `json:"auth_mode" validate:"required,oneof=off strict all_except_health auto"`
	APIKey string   `json:"api_key"`
}

// EffectiveMode derives the concrete enforcement mode per §4.2: auto
// resolves against allow_lan_access, all other modes pass through verbatim.
func (a Auth) EffectiveMode(allowLAN bool) AuthMode {
	if a.Mode != AuthAuto {
		return a.Mode
	}
	if allowLAN {
		return AuthAllExceptHealth
	}
	return AuthOff
}

// Observability controls the ambient logging/attribution surfaces.
type Observability struct {
	AccessLogEnabled          bool `json:"access_log_enabled"`
	ResponseAttributionHeaders bool `json:"response_attribution_headers"`
}

// Mapping holds the three model-mapping tables consulted by the routing
// engine's model resolution order.
type Mapping struct {
	Anthropic map[string]string `json:"anthropic_mapping"`
	OpenAI    map[string]string `json:"openai_mapping"`
	Custom    map[string]string `json:"custom_mapping"`
}

// DispatchMode is the policy splitting Anthropic-compatible requests
// between passthrough and the Google-backed pool.
type DispatchMode string

const (
	DispatchOff       DispatchMode = "off"
	DispatchExclusive DispatchMode = "exclusive"
	DispatchPooled    DispatchMode = "pooled"
	DispatchFallback  DispatchMode = "fallback"
)

// URLNormalization controls Web Reader query-string scrubbing.
type URLNormalization string

const (
	URLNormOff                 URLNormalization = "off"
	URLNormStripTrackingQuery  URLNormalization = "strip_tracking_query"
	URLNormStripQuery          URLNormalization = "strip_query"
)

// Zai holds the optional Anthropic-compatible passthrough provider's
// configuration.
type Zai struct {
	Enabled      bool              `json:"enabled"`
	BaseURL      string            `json:"base_url"`
	APIKey       string            `json:"api_key"`
	DispatchMode DispatchMode      `json:"dispatch_mode" validate:"omitempty,oneof=off exclusive pooled fallback"`
	ModelMapping map[string]string `json:"model_mapping"`

	Tools ZaiTools `json:"tools"`

	APIKeyOverride           string           `json:"api_key_override"`
	WebReaderURLNormalization URLNormalization `json:"web_reader_url_normalization" validate:"omitempty,oneof=off strip_tracking_query strip_query"`
}

// ZaiTools gates the reverse-proxy tool-call endpoints. ZaiMCPServer is
// stored with the document, but the built-in zai-mcp-server endpoint does
// not consult it or Enabled.
type ZaiTools struct {
	Enabled           bool `json:"enabled"`
	WebSearchPrime    bool `json:"web_search_prime_enabled"`
	WebReader         bool `json:"web_reader_enabled"`
	Zread             bool `json:"zread_enabled"`
	ZaiMCPServer      bool `json:"zai_mcp_server_enabled"`
}

// defaultZaiOpus, defaultZaiSonnet, defaultZaiHaiku are the zai passthrough's
// built-in family→model_id mapping used when model_mapping has no exact
// override (§3 passthrough).
const (
	defaultZaiOpus   = "glm-4.6"
	defaultZaiSonnet = "glm-4.6"
	defaultZaiHaiku  = "glm-4.5-air"
)

// DefaultModelMapping returns the zai passthrough's built-in family
// defaults; exact entries in ModelMapping still take precedence.
func (z Zai) DefaultModelMapping() map[string]string {
	return map[string]string{
		"opus":   defaultZaiOpus,
		"sonnet": defaultZaiSonnet,
		"haiku":  defaultZaiHaiku,
	}
}

// Defaults returns a Config populated with the built-in recommended
// defaults (§6), used when gui_config.json is absent on first run.
func Defaults() *Config {
	return &Config{
		Network: Network{
			Port:           8081,
			AllowLANAccess: false,
			RequestTimeout: "60s",
		},
		Auth: Auth{
			Mode: AuthAuto,
		},
		Observability: Observability{
			AccessLogEnabled:           true,
			ResponseAttributionHeaders: true,
		},
		Mapping: Mapping{
			Anthropic: map[string]string{
				"claude-opus-family":   "claude-opus-4-5-thinking",
				"claude-sonnet-family": "claude-sonnet-4-5-thinking",
				"claude-haiku-family":  "gemini-3-pro-high",
				"claude-4.5-series":    "claude-opus-4-5-thinking",
				"claude-3.5-series":    "gemini-3-pro-high",
			},
			OpenAI: map[string]string{},
			Custom: map[string]string{},
		},
		Zai: Zai{
			Enabled:      false,
			DispatchMode: DispatchOff,
			ModelMapping: map[string]string{},
		},
	}
}
