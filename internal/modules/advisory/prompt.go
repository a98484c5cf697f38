package advisory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/roadscan/internal/domain"
)

// SystemMessage frames the model's role for every request.
const SystemMessage = "You are a quantum civic infrastructure planner."

// Frame places the scanned road in a route and region.
type Frame struct {
	Route  string
	Region string
}

// DefaultFrame is used when no route or region is configured.
var DefaultFrame = Frame{Route: "Highway 123", Region: "South Carolina"}

func (f Frame) orDefault() Frame {
	if f.Route == "" {
		f.Route = DefaultFrame.Route
	}
	if f.Region == "" {
		f.Region = DefaultFrame.Region
	}
	return f
}

// BuildPrompt renders the road-safety planning prompt for one assessment.
// The output depends only on a and f.
func BuildPrompt(a domain.Assessment, f Frame) string {
	f = f.orDefault()

	location := a.Location
	if location == "" {
		location = "an unnamed location"
	}

	var b strings.Builder

	b.WriteString("You are a quantum-enhanced road safety planner working across hypertime strata. ")
	b.WriteString("Assess the risk level, signage deficiency and likely incident points of the road described below, ")
	b.WriteString("using multidecade predictive simulation and color-based quantum resonance.\n\n")

	b.WriteString("You are given:\n")
	b.WriteString("- A 7-component color and texture vector extracted from a real road photo (HSV histogram bins, edge density, intensity entropy; normalized)\n")
	b.WriteString("- The output of a 7-qubit circuit simulating resonance entropy, dip detection, curve entanglement and hazard field potential\n")
	b.WriteString("- An entropy score combining classical color variability and quantum output deviation\n")
	fmt.Fprintf(&b, "- A situational frame: this road is part of %s near %s, %s\n\n", f.Route, location, f.Region)

	b.WriteString("Analyze both:\n")
	b.WriteString("1. Past preventable incidents from hypertime simulations between 2010 and 2025\n")
	b.WriteString("2. Future forecasted events from 2025 to 2040 using quantum resonance inference\n\n")
	b.WriteString("---\n\n")

	b.WriteString("Your output must contain the following sections, formatted for state DOT engineers:\n\n")

	b.WriteString("### Hypertime Simulation Report\n")
	b.WriteString("- Identify 3 to 5 hazard zones (by estimated mileage or landmark type)\n")
	b.WriteString("- For each hazard give a day/night visibility rating, topographic interference and the predicted risk type (vehicle swerve, blocked egress, pedestrian near-miss)\n")
	b.WriteString("- State whether the zone is driven more by historical pattern or by resonance forecast\n\n")

	b.WriteString("### Signage & Safety Infrastructure Proposal\n")
	b.WriteString("For each hazard zone:\n")
	b.WriteString("- Recommend a specific sign or intervention with its text, placement mileage and purpose\n")
	b.WriteString("- Where useful, recommend digital, solar or smart signage\n")
	b.WriteString("- Note whether it could sync with fire/emergency dispatch alerts, AI beacons or dynamic solar LEDs\n\n")

	b.WriteString("### Preventative Mitigation Summary\n")
	b.WriteString("- Project the change in emergency response time, civilian incident reduction and driver compliance after the signage is installed\n")
	b.WriteString("- Give a 15-year Safety ROI (S-ROI) estimate with projected savings and incident reduction percentages\n\n")

	b.WriteString("### Optional Quantum Enhancements\n")
	b.WriteString("List 1 or 2 futuristic enhancements the agency could pilot, for example a hypertime-linked quantum safety node, ")
	b.WriteString("encrypted AI signage with real-time resonance monitoring, or passive vehicle radar interaction at curve zones.\n\n")
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "Entropy Score: %.4f\n", a.Entropy)
	fmt.Fprintf(&b, "Color Vector: %s\n", formatVector(a.Color))
	fmt.Fprintf(&b, "Quantum Output: %s\n", formatVector(a.Quantum))

	return b.String()
}

// formatVector prints x as "[a, b, c]" with enough digits to round-trip.
func formatVector(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = strconv.FormatFloat(v, 'g', 8, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
