// Package settings stores dashboard configuration: alert notification
// toggles, auto-action thresholds, and scoring pipeline options.
package settings

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("settings not found")
)

// Allowed enum values for pipeline options.
var (
	updateFrequencies = []string{"hourly", "daily", "weekly"}
	sensitivityLevels = []string{"low", "medium", "high"}
	featureWeightings = []string{"balanced", "amount-heavy", "location-heavy"}
)

// Settings is the full dashboard configuration. One document per
// deployment; there is no per-user scoping.
type Settings struct {
	// Notification toggles by risk tier
	NotifyOnHighRisk   bool `json:"notifyOnHighRisk"`
	NotifyOnMediumRisk bool `json:"notifyOnMediumRisk"`
	NotifyOnLowRisk    bool `json:"notifyOnLowRisk"`

	// Auto-action thresholds on the 0-100 risk score
	AutoDeclineThreshold int `json:"autoDeclineThreshold"`
	AutoFlagThreshold    int `json:"autoFlagThreshold"`

	// Scoring pipeline options
	ModelUpdateFrequency   string `json:"modelUpdateFrequency"`
	SensitivityLevel       string `json:"sensitivityLevel"`
	FeatureWeighting       string `json:"featureWeighting"`
	UseBehavioralAnalysis  bool   `json:"useBehavioralAnalysis"`
	UseGeolocationData     bool   `json:"useGeolocationData"`
	UseDeviceFingerprints  bool   `json:"useDeviceFingerprinting"`
}

// Defaults returns the configuration shipped out of the box.
func Defaults() *Settings {
	return &Settings{
		NotifyOnHighRisk:      true,
		NotifyOnMediumRisk:    true,
		NotifyOnLowRisk:       false,
		AutoDeclineThreshold:  85,
		AutoFlagThreshold:     65,
		ModelUpdateFrequency:  "daily",
		SensitivityLevel:      "medium",
		FeatureWeighting:      "balanced",
		UseBehavioralAnalysis: true,
		UseGeolocationData:    true,
		UseDeviceFingerprints: true,
	}
}

// Validate checks threshold ranges, threshold ordering, and enum values.
func (s *Settings) Validate() error {
	if s.AutoDeclineThreshold < 0 || s.AutoDeclineThreshold > 100 {
		return fmt.Errorf("autoDeclineThreshold must be in [0, 100]")
	}
	if s.AutoFlagThreshold < 0 || s.AutoFlagThreshold > 100 {
		return fmt.Errorf("autoFlagThreshold must be in [0, 100]")
	}
	if s.AutoFlagThreshold > s.AutoDeclineThreshold {
		return fmt.Errorf("autoFlagThreshold must not exceed autoDeclineThreshold")
	}
	if !oneOf(s.ModelUpdateFrequency, updateFrequencies) {
		return fmt.Errorf("modelUpdateFrequency must be one of %v", updateFrequencies)
	}
	if !oneOf(s.SensitivityLevel, sensitivityLevels) {
		return fmt.Errorf("sensitivityLevel must be one of %v", sensitivityLevels)
	}
	if !oneOf(s.FeatureWeighting, featureWeightings) {
		return fmt.Errorf("featureWeighting must be one of %v", featureWeightings)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Store persists the settings document.
type Store interface {
	Get(ctx context.Context) (*Settings, error)
	Put(ctx context.Context, s *Settings) error
}
