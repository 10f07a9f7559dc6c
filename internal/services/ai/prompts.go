package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/margdarshan-ai/margdarshan/internal/models"
)

const roadmapPromptFmt = `Create a %d-week study roadmap for becoming a "%s".
Current Skills: %s.
Weekly Commitment: %d hours.
Budget: INR %d.

Output strictly in this JSON format:
{
  "roadmap": {
    "targetRole": "%s",
    "totalWeeks": %d,
    "phases": [
      {
        "title": "Phase Name",
        "projectIdea": "Capstone Project Idea",
        "weeks": [
          {
            "week": "Week 1",
            "topics": ["Topic 1", "Topic 2"],
            "resource": "Recommended course/doc"
          }
        ]
      }
    ]
  }
}
No markdown.`

func (c *Client) GenerateRoadmap(ctx context.Context, targetRole string, skills []string, hoursPerWeek, weeks, budget int) (*models.Roadmap, error) {
	prompt := fmt.Sprintf(roadmapPromptFmt,
		weeks, targetRole, strings.Join(skills, ", "), hoursPerWeek, budget, targetRole, weeks)

	var roadmap models.Roadmap
	if err := c.generateJSON(ctx, prompt, &roadmap); err != nil {
		return nil, err
	}
	return &roadmap, nil
}

const simulatorPromptFmt = `Simulate a realistic career path based on this profile: %s

Available career paths to rank: %s

Output strictly in this JSON format:
{
  "overallRecommendation": "Summary string",
  "rankedPaths": [
    {
      "pathId": "career-path-1",
      "fitScore": 85,
      "projectedInitialSalary": 500000,
      "year5Salary": 1200000,
      "personalizedAdvice": "Advice string"
    }
  ]
}
No markdown.`

func (c *Client) SimulateCareerPath(ctx context.Context, profile *models.StudentProfile, paths []models.CareerPath) (*models.SimulationResult, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}
	pathsJSON, err := json.Marshal(paths)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(simulatorPromptFmt, profileJSON, pathsJSON)

	var result models.SimulationResult
	if err := c.generateJSON(ctx, prompt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

const validatorPromptFmt = `Analyze if this course is a good fit for the student.
Course: %s
Student Profile: %s

Output strictly in this JSON format:
{
  "fitScore": number (0-100),
  "aiRecommendation": "2-3 sentences on why it fits or not",
  "pros": ["Pro 1", "Pro 2"],
  "cons": ["Con 1", "Con 2"],
  "roiEstimate": {
    "expectedSalaryIncrease": number (percentage),
    "breakEvenMonths": number
  }
}
No markdown.`

func (c *Client) ValidateCourse(ctx context.Context, course *models.Course, profile *models.StudentProfile) (*models.CourseValidation, error) {
	courseJSON, err := json.Marshal(course)
	if err != nil {
		return nil, err
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(validatorPromptFmt, courseJSON, profileJSON)

	var result models.CourseValidation
	if err := c.generateJSON(ctx, prompt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

const reportPromptFmt = `You are an expert Career Counsellor and AI Analyst.
Analyze the following student profile and generate a detailed career report in Strict JSON format.

Student Profile:
%s

Output strictly in this JSON format:
{
  "executiveSummary": "Strategic high-level summary of their career potential (2-3 sentences)",
  "marketOutlook": number (0-100 indicating growth potential),
  "skillGapAnalysis": [
    { "skillName": "Specific Technical Skill", "priority": "High" | "Medium" | "Low" }
  ],
  "roiAnalysis": {
    "breakEvenMonths": number,
    "year1Salary": number (conservative estimate),
    "year5Salary": number,
    "year10Salary": number,
    "yearlySalaryProjection": [number, number, ... 10 values representing salary for years 1-10]
  },
  "timeMetrics": {
    "learningHoursRequired": number,
    "jobReadyWeeks": number,
    "burnoutRisk": number (0-100)
  },
  "strategicRecommendations": ["Actionable step 1", "Actionable step 2", "Actionable step 3"]
}
Do not include markdown formatting. Just the raw JSON string.`

func (c *Client) GenerateCareerReport(ctx context.Context, profile *models.StudentProfile) (*models.CareerReport, error) {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(reportPromptFmt, profileJSON)

	var report models.CareerReport
	if err := c.generateJSON(ctx, prompt, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

const recommendPromptFmt = `Analyze this student profile and suggest top 3 career paths in the Indian tech market.
Profile: %s

Output strictly in this JSON format:
{
  "summary": "Brief encouraging summary of their potential",
  "recommendations": [
    {
      "title": "Job Title",
      "fitReason": "Why this fits their profile",
      "marketDemand": "High/Medium/Low",
      "averageSalary": "e.g. 8-12 LPA"
    }
  ]
}
No markdown.`

func (c *Client) RecommendCareers(ctx context.Context, profile *models.StudentProfile) (*models.CareerRecommendations, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(recommendPromptFmt, profileJSON)

	var recs models.CareerRecommendations
	if err := c.generateJSON(ctx, prompt, &recs); err != nil {
		return nil, err
	}
	return &recs, nil
}

const mentorPromptFmt = `You are an empathetic, expert Career Counsellor for Indian students.

Conversation History:
%s

Student: %s
Mentor (You):`

// ChatWithMentor returns plain mentor text; chat output is not JSON.
func (c *Client) ChatWithMentor(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	var sb strings.Builder
	for _, turn := range history {
		speaker := "Mentor"
		if turn.Role == "user" {
			speaker = "Student"
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(turn.Text)
		sb.WriteString("\n")
	}

	prompt := fmt.Sprintf(mentorPromptFmt, sb.String(), message)
	return c.Generate(ctx, prompt)
}

const seedPromptFmt = `Generate %d high-quality realistic rows for a "%s" collection in a career
guidance platform for Indian engineering students.

Output strictly as a JSON array of objects. Each object should carry the
fields a "%s" row would plausibly have (names, titles, salaries in INR,
providers, descriptions as appropriate).
No markdown.`

func (c *Client) GenerateSeedData(ctx context.Context, dataType string, count int) ([]map[string]interface{}, error) {
	prompt := fmt.Sprintf(seedPromptFmt, count, dataType, dataType)

	var rows []map[string]interface{}
	if err := c.generateJSON(ctx, prompt, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
