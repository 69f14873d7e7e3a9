package cli

import "time"

type Options struct {
	Command      []string
	BaseURL      string
	Token        string
	Username     string
	Password     string
	CompanyEmail string
	From         string
	To           string
	JSON         bool
	Debug        bool
	LogFile      string
	Timeout      time.Duration
}
