package domain

// Token describes a settlement asset recognised by the protocol deployment.
type Token struct {
	Type     string `json:"type" toml:"type"`
	Symbol   string `json:"symbol" toml:"symbol"`
	Decimals int32  `json:"decimals" toml:"decimals"`
}
