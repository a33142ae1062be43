package service

import (
	"fmt"
	"strings"

	"construction-marketplace-api/internal/entity"
)

// Eligible decides whether a vendor may bid on a project. Checks run in
// order and the first failure wins. Verification status is deliberately not
// checked: any active vendor may bid, verified or not.
func Eligible(vendor *entity.VendorProfile, project *entity.Project) (bool, string) {
	if vendor.Status != entity.VendorActive {
		return false, fmt.Sprintf("vendor is %s, only active vendors may bid", vendor.Status)
	}

	if declared := declaredServices(vendor.Services); len(declared) > 0 {
		if !containsFold(declared, project.Type) {
			return false, fmt.Sprintf("vendor does not offer %s services", project.Type)
		}
	}

	if vendor.YearsInBusiness < project.Preferences.MinExperienceYears {
		return false, fmt.Sprintf("project requires %d years in business, vendor has %d",
			project.Preferences.MinExperienceYears, vendor.YearsInBusiness)
	}

	if vendor.Rating < project.Preferences.MinRating {
		return false, fmt.Sprintf("project requires a rating of at least %.1f, vendor has %.1f",
			project.Preferences.MinRating, vendor.Rating)
	}

	return true, ""
}

// declaredServices drops empty entries; a list containing "any" counts as no
// restriction at all.
func declaredServices(services []string) []string {
	declared := make([]string, 0, len(services))
	for _, s := range services {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.EqualFold(s, "any") {
			return nil
		}
		declared = append(declared, s)
	}

	return declared
}

func containsFold(list []string, value string) bool {
	for _, s := range list {
		if strings.EqualFold(s, value) {
			return true
		}
	}

	return false
}
