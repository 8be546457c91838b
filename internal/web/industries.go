// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package web

import "github.com/tomtom215/lenscape/internal/models"

// industries is the static vertical content shown on /industries/{slug} and
// served by /api/industries. Category slugs refer to the default catalog.
var industries = []models.Industry{
	{
		Slug:     "retail",
		Name:     "Retail",
		Headline: "Loss prevention and store analytics",
		Summary:  "Cover sales floors, stockrooms and checkouts with cameras that double as footfall counters.",
		Challenges: []string{
			"Shrinkage at self-checkout and blind spots in aisles",
			"Many small sites with no on-site IT staff",
		},
		Solutions: []string{
			"Wide-angle dome cameras over checkouts",
			"Cloud-managed NVRs with remote health alerts",
		},
		Categories: []string{"dome-cameras", "nvr-systems"},
	},
	{
		Slug:     "education",
		Name:     "Education",
		Headline: "Safer campuses without intrusive coverage",
		Summary:  "Entrances, corridors and car parks monitored with privacy masking where it matters.",
		Challenges: []string{
			"Large open sites with many entry points",
			"Privacy rules for classrooms and changing areas",
		},
		Solutions: []string{
			"Bullet cameras with long-range IR on perimeters",
			"Privacy masking configured per camera",
		},
		Categories: []string{"bullet-cameras", "access-control"},
	},
	{
		Slug:     "healthcare",
		Name:     "Healthcare",
		Headline: "Protect staff, patients and medication stores",
		Summary:  "Round-the-clock coverage for wards, pharmacies and emergency entrances.",
		Challenges: []string{
			"24/7 operation with low light at night",
			"Strict retention and access auditing requirements",
		},
		Solutions: []string{
			"Low-light sensors for night wards",
			"Recorders with audited export and encrypted storage",
		},
		Categories: []string{"dome-cameras", "nvr-systems"},
	},
	{
		Slug:     "logistics",
		Name:     "Logistics",
		Headline: "Track every dock, lane and yard",
		Summary:  "Plate recognition at gates and PTZ coverage for yards and loading bays.",
		Challenges: []string{
			"Vehicle movements at all hours",
			"Large outdoor areas exposed to weather",
		},
		Solutions: []string{
			"ANPR cameras at entry and exit gates",
			"Weatherproof PTZ cameras with auto-tracking",
		},
		Categories: []string{"ptz-cameras", "anpr-cameras"},
	},
	{
		Slug:     "hospitality",
		Name:     "Hospitality",
		Headline: "Discreet coverage for guest-facing spaces",
		Summary:  "Lobbies, bars and car parks covered with cameras that fit the interior.",
		Challenges: []string{
			"Cameras must not spoil the guest experience",
			"Incidents need quick footage retrieval",
		},
		Solutions: []string{
			"Compact turret cameras in neutral finishes",
			"Mobile playback for duty managers",
		},
		Categories: []string{"turret-cameras", "nvr-systems"},
	},
	{
		Slug:     "government",
		Name:     "Government",
		Headline: "Compliant surveillance for public buildings",
		Summary:  "Hardened cameras and recorders that meet procurement and cybersecurity requirements.",
		Challenges: []string{
			"Procurement rules on hardware origin",
			"Network segmentation and firmware control",
		},
		Solutions: []string{
			"NDAA-compliant camera ranges",
			"Recorders with signed firmware and role-based export",
		},
		Categories: []string{"bullet-cameras", "access-control"},
	},
}

// Industries returns the industry pages in display order.
func Industries() []models.Industry {
	out := make([]models.Industry, len(industries))
	copy(out, industries)
	return out
}

// FindIndustry looks up an industry by slug.
func FindIndustry(slug string) (models.Industry, bool) {
	for _, ind := range industries {
		if ind.Slug == slug {
			return ind, true
		}
	}
	return models.Industry{}, false
}
