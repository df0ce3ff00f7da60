package proposal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/compass/pkg/models"
)

const profileSystemPrompt = "You analyse company websites for a software and creative agency. " +
	"You answer with a single JSON object and nothing else."

const proposalSystemPrompt = "You write business proposals for Compass, a full-service digital agency in the UAE. " +
	"You are specific, data-driven and professional."

func buildProfilePrompt(website string, social map[string]string) string {
	var b strings.Builder
	b.WriteString("Analyze the following website content and extract structured business information.\n")
	b.WriteString("Return exactly one JSON object with this structure:\n")
	b.WriteString(`{
  "company_description": "brief description of the company and what they do",
  "services": ["service"],
  "tech_stack": ["technology"],
  "company_size": "startup, small, medium, large or enterprise",
  "industry": "primary industry vertical",
  "recent_news": ["news item"],
  "social_presence": {"platform": "activity summary"},
  "confidence_score": 0.85
}
`)
	fmt.Fprintf(&b, "\nWebsite Content:\n%s\n", orNone(website))

	socialJSON, _ := json.MarshalIndent(social, "", "  ")
	fmt.Fprintf(&b, "\nSocial Media Content:\n%s\n", socialJSON)

	b.WriteString("\nInfer company size from employee counts, revenue or the description. ")
	b.WriteString("Take the technology stack from job postings and tech mentions. ")
	b.WriteString("Set confidence_score from 0.0 to 1.0 based on data quality. Return valid JSON only.")
	return b.String()
}

func buildProposalPrompt(req Request, profile models.ClientProfile, similar []models.SimilarProject) string {
	var b strings.Builder
	b.WriteString("Generate a professional business proposal for the client described below.\n\n")

	b.WriteString("CLIENT INFORMATION:\n")
	fmt.Fprintf(&b, "- Company: %s\n", req.ClientName)
	fmt.Fprintf(&b, "- Website: %s\n", orNone(req.Website))
	fmt.Fprintf(&b, "- Industry: %s\n", orNone(profile.Industry))
	fmt.Fprintf(&b, "- Company Size: %s\n", orNone(profile.CompanySize))
	fmt.Fprintf(&b, "- Current Services: %s\n", orNone(strings.Join(profile.Services, ", ")))
	fmt.Fprintf(&b, "- Tech Stack: %s\n", orNone(strings.Join(profile.TechStack, ", ")))
	fmt.Fprintf(&b, "- Description: %s\n\n", orNone(profile.CompanyDescription))

	b.WriteString("RELEVANT PAST PROJECTS:\n")
	if len(similar) == 0 {
		b.WriteString("none\n")
	}
	for _, p := range similar {
		fmt.Fprintf(&b, "- %s (%s): %s. Technologies: %s. Outcome: %s. Match score: %.2f\n",
			p.Name, p.IndustryVertical, p.Description, strings.Join(p.Technologies, ", "), orNone(p.Outcome), p.Similarity)
	}

	b.WriteString("\nCAPABILITIES: cloud enablement (AWS, Azure, GCP), data and AI services, web and mobile development, ")
	b.WriteString("DevOps and automation, digital transformation, branding and digital marketing.\n")
	if r := strings.TrimSpace(req.CustomRequirements); r != "" {
		fmt.Fprintf(&b, "\nCUSTOM REQUIREMENTS: %s\n", r)
	}

	b.WriteString("\nWrite the proposal in markdown with exactly these top-level headers, in order:\n")
	for _, s := range Sections {
		fmt.Fprintf(&b, "# %s\n", s)
	}
	b.WriteString("\nReference the similar projects and their outcomes. Keep the tone professional and make the next steps actionable.")
	return b.String()
}

func buildSectionPrompt(section, context, requirements string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Regenerate the %q section of a business proposal.\n", section)
	fmt.Fprintf(&b, "Context: %s\n", orNone(context))
	fmt.Fprintf(&b, "Specific Requirements: %s\n", orNone(requirements))
	b.WriteString("Return only the content of this section, without its header, in a professional tone.")
	return b.String()
}

// FallbackProposal is the templated proposal used when the model cannot write one.
func FallbackProposal(clientName string, profile models.ClientProfile, similar []models.SimilarProject) string {
	industry := profile.Industry
	if industry == "" || industry == "general" {
		industry = "technology"
	}
	services := "business services"
	if len(profile.Services) > 0 {
		services = strings.Join(first(profile.Services, 3), ", ")
	}
	size := profile.CompanySize
	if size == "" || size == "unknown" {
		size = "growing"
	}
	tech := "various technologies"
	if len(profile.TechStack) > 0 {
		tech = strings.Join(first(profile.TechStack, 3), ", ")
	}

	var experience strings.Builder
	if len(similar) == 0 {
		experience.WriteString("- Proven track record in digital transformation\n")
		experience.WriteString("- Expert team with deep industry knowledge\n")
		experience.WriteString("- Scalable solutions for business growth\n")
	}
	for _, p := range first(similar, 3) {
		fmt.Fprintf(&experience, "- %s (%s): %s\n", p.Name, p.IndustryVertical, clipEllipsis(p.Description, 100))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", Sections[0])
	fmt.Fprintf(&b, "Thank you for considering Compass. Based on our analysis of %s, we understand you are looking to strengthen your digital presence and business operations.\n\n", clientName)
	fmt.Fprintf(&b, "# %s\n", Sections[1])
	fmt.Fprintf(&b, "%s operates in the %s industry with a focus on %s. Your company is %s and currently uses %s.\n\n", clientName, industry, services, size, tech)
	fmt.Fprintf(&b, "# %s\n", Sections[2])
	b.WriteString("We recommend a phased approach:\n")
	b.WriteString("1. Technology assessment and strategy\n")
	b.WriteString("2. Custom development\n")
	b.WriteString("3. Digital transformation services\n")
	b.WriteString("4. Ongoing support and maintenance\n\n")
	fmt.Fprintf(&b, "# %s\n", Sections[3])
	b.WriteString("Compass brings experience from similar projects:\n")
	b.WriteString(experience.String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "# %s\n", Sections[4])
	b.WriteString("A modern, scalable stack: cloud-native architecture, API-first services and security built in from day one.\n\n")
	fmt.Fprintf(&b, "# %s\n", Sections[5])
	b.WriteString("Phase 1 (4-6 weeks): Discovery and planning\n")
	b.WriteString("Phase 2 (8-12 weeks): Development and testing\n")
	b.WriteString("Phase 3 (2-4 weeks): Deployment and launch\n\n")
	fmt.Fprintf(&b, "# %s\n", Sections[6])
	b.WriteString("1. Schedule a detailed consultation\n")
	b.WriteString("2. Define project scope and requirements\n")
	b.WriteString("3. Agree on a detailed project plan\n")
	b.WriteString("4. Begin the development phase\n")
	return b.String()
}

func first[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func clipEllipsis(s string, n int) string {
	if c := clip(s, n); c != s {
		return c + "..."
	}
	return s
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not available"
	}
	return s
}
