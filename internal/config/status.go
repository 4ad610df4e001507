package config

// ServiceStatus describes which optional integrations are active.
type ServiceStatus struct {
	SMSEnabled      bool     `json:"sms_enabled"`
	AIEnabled       bool     `json:"ai_enabled"`
	DatabaseEnabled bool     `json:"database_enabled"`
	MissingKeys     []string `json:"missing_keys"`
	Messages        []string `json:"messages"`
}

func (c *Config) ServiceStatus() ServiceStatus {
	st := ServiceStatus{
		SMSEnabled:      c.Twilio.Configured(),
		AIEnabled:       c.OpenAI.Configured() && c.ClassifierEnabled,
		DatabaseEnabled: c.Database.Host != "" && c.Database.Name != "",
		MissingKeys:     []string{},
		Messages:        []string{},
	}

	for _, k := range []struct {
		name  string
		value string
	}{
		{"TWILIO_ACCOUNT_SID", c.Twilio.AccountSID},
		{"TWILIO_AUTH_TOKEN", c.Twilio.AuthToken},
		{"TWILIO_PHONE_NUMBER", c.Twilio.PhoneNumber},
		{"OPENAI_API_KEY", c.OpenAI.APIKey},
	} {
		if k.value == "" {
			st.MissingKeys = append(st.MissingKeys, k.name)
		}
	}

	if !st.SMSEnabled {
		st.Messages = append(st.Messages, "SMS notifications are disabled. Configure Twilio credentials to enable SMS alerts for admins and approval notifications.")
	}
	if !st.AIEnabled {
		if c.OpenAI.Configured() {
			st.Messages = append(st.Messages, "AI Assistant is turned off by CLASSIFIER_ENABLED=false.")
		} else {
			st.Messages = append(st.Messages, "AI Assistant is disabled. Add an OpenAI API key to enable automatic urgency analysis and approval note generation.")
		}
	}
	return st
}
