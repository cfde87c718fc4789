package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// PlayerConfig is the strength profile of one seat. Depth 0 marks a human seat.
type PlayerConfig struct {
	Depth         int `json:"depth" yaml:"depth" mapstructure:"depth" validate:"min=0,max=60"`
	ExactDepth    int `json:"exactDepth" yaml:"exactDepth" mapstructure:"exact_depth" validate:"min=0,max=60"`
	WLDDepth      int `json:"wldDepth" yaml:"wldDepth" mapstructure:"wld_depth" validate:"min=0,max=60"`
	Time          int `json:"time" yaml:"time" mapstructure:"time" validate:"min=0,max=86400"`                     // Seconds for the whole game, 0 = unlimited
	TimeIncrement int `json:"timeIncrement" yaml:"timeIncrement" mapstructure:"time_increment" validate:"min=0,max=3600"` // Seconds added per move
}

// IsHuman reports whether the seat is played by a person
func (c PlayerConfig) IsHuman() bool {
	return c.Depth == 0
}

// Validate checks ranges and returns a *ConfigError describing the first failures
func (c PlayerConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ConfigError{Field: "player", Reason: err.Error()}
	}

	var details strings.Builder
	for _, fe := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch fe.Tag() {
		case "min":
			details.WriteString(fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			details.WriteString(fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return &ConfigError{Field: verrs[0].Field(), Reason: details.String()}
}

// HumanPlayer is the default configuration for a person
func HumanPlayer() PlayerConfig {
	return PlayerConfig{}
}

// ComputerPlayer returns a config searching to depth with a matching endgame window
func ComputerPlayer(depth int) PlayerConfig {
	return PlayerConfig{
		Depth:      depth,
		ExactDepth: depth + 2,
		WLDDepth:   depth + 4,
	}
}
