package devenv

// WilmaTestConfig is read from dev/.state/wilma_config.json5, it points the
// live tests at a real portal account.
type WilmaTestConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	// ExpectMessages makes the live test fail on an empty inbox.
	ExpectMessages bool `json:"expect_messages"`
}

const WilmaTestConfigFile = "wilma_config.json5"
