package models

import (
	"encoding/json"
	"time"
)

// RateLimitRecord tracks a user's request count inside a fixed window.
// Once now >= ResetAt the record is expired and must be treated as absent.
type RateLimitRecord struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"resetAt"` // unix milliseconds
}

// CacheEntry is a memoized AI response stored under a fingerprint key.
type CacheEntry struct {
	Response  json.RawMessage `json:"response"`
	CreatedAt int64           `json:"createdAt"` // unix milliseconds
	ExpiresAt int64           `json:"expiresAt"` // unix milliseconds
}

// Expired reports whether the entry must be treated as a cache miss.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.UnixMilli() >= e.ExpiresAt
}

// UserProfile is the profile row created at signup.
type UserProfile struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	UserType  string `json:"userType"`
	CreatedAt int64  `json:"createdAt"`
	LastLogin int64  `json:"lastLogin"`
}

// Credentials is the stored login record for an email address.
type Credentials struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// StudentProfile is the caller-supplied profile forwarded into prompts.
// Only presence is checked; business semantics are not validated here.
type StudentProfile struct {
	CollegeTier string   `json:"collegeTier,omitempty"`
	Branch      string   `json:"branch,omitempty"`
	CGPA        float64  `json:"cgpa,omitempty"`
	Budget      int      `json:"budget,omitempty"`
	Goals       []string `json:"goals,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

// Course describes a row under courses/{courseId}.
type Course struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Price    int    `json:"price"`
	Duration string `json:"duration,omitempty"`
	Link     string `json:"link,omitempty"`
}

// CareerPath describes a row under careerPaths/{pathId}.
type CareerPath struct {
	PathID        string `json:"pathId"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	InitialSalary int    `json:"initialSalary,omitempty"`
	Demand        string `json:"demand,omitempty"`
}

// ForumPost is a community post under forumPosts/{postId}.
type ForumPost struct {
	ID         string         `json:"id,omitempty"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Category   string         `json:"category"`
	Tags       []string       `json:"tags,omitempty"`
	Engagement PostEngagement `json:"engagement"`
	Metadata   PostMetadata   `json:"metadata"`
}

type PostEngagement struct {
	Upvotes     int `json:"upvotes"`
	Downvotes   int `json:"downvotes"`
	AnswerCount int `json:"answerCount"`
}

type PostMetadata struct {
	CreatedAt int64  `json:"createdAt"`
	Status    string `json:"status"`
}

// Roadmap is the generated study roadmap payload.
type Roadmap struct {
	Roadmap RoadmapBody `json:"roadmap"`
}

type RoadmapBody struct {
	TargetRole string         `json:"targetRole"`
	TotalWeeks int            `json:"totalWeeks"`
	Phases     []RoadmapPhase `json:"phases"`
}

type RoadmapPhase struct {
	Title       string        `json:"title"`
	ProjectIdea string        `json:"projectIdea"`
	Weeks       []RoadmapWeek `json:"weeks"`
}

type RoadmapWeek struct {
	Week     string   `json:"week"`
	Topics   []string `json:"topics"`
	Resource string   `json:"resource"`
}

// SimulationResult ranks career paths for a student profile.
type SimulationResult struct {
	OverallRecommendation string       `json:"overallRecommendation"`
	RankedPaths           []RankedPath `json:"rankedPaths"`
}

type RankedPath struct {
	PathID                 string `json:"pathId"`
	FitScore               int    `json:"fitScore"`
	ProjectedInitialSalary int    `json:"projectedInitialSalary"`
	Year5Salary            int    `json:"year5Salary"`
	PersonalizedAdvice     string `json:"personalizedAdvice"`
}

// CourseValidation is the fit analysis for a course against a profile.
type CourseValidation struct {
	FitScore         int      `json:"fitScore"`
	AIRecommendation string   `json:"aiRecommendation"`
	Pros             []string `json:"pros"`
	Cons             []string `json:"cons"`
	ROIEstimate      ROI      `json:"roiEstimate"`
}

type ROI struct {
	ExpectedSalaryIncrease int `json:"expectedSalaryIncrease"`
	BreakEvenMonths        int `json:"breakEvenMonths"`
}

// CareerReport is the full analyst report for a student profile.
type CareerReport struct {
	ExecutiveSummary         string      `json:"executiveSummary"`
	MarketOutlook            int         `json:"marketOutlook"`
	SkillGapAnalysis         []SkillGap  `json:"skillGapAnalysis"`
	ROIAnalysis              ReportROI   `json:"roiAnalysis"`
	TimeMetrics              TimeMetrics `json:"timeMetrics"`
	StrategicRecommendations []string    `json:"strategicRecommendations"`
}

type SkillGap struct {
	SkillName string `json:"skillName"`
	Priority  string `json:"priority"` // High | Medium | Low
}

type ReportROI struct {
	BreakEvenMonths        int   `json:"breakEvenMonths"`
	Year1Salary            int   `json:"year1Salary"`
	Year5Salary            int   `json:"year5Salary"`
	Year10Salary           int   `json:"year10Salary"`
	YearlySalaryProjection []int `json:"yearlySalaryProjection"`
}

type TimeMetrics struct {
	LearningHoursRequired int `json:"learningHoursRequired"`
	JobReadyWeeks         int `json:"jobReadyWeeks"`
	BurnoutRisk           int `json:"burnoutRisk"`
}

// CareerRecommendations is the top-paths suggestion payload.
type CareerRecommendations struct {
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
}

type Recommendation struct {
	Title         string `json:"title"`
	FitReason     string `json:"fitReason"`
	MarketDemand  string `json:"marketDemand"`
	AverageSalary string `json:"averageSalary"`
}

// ChatMessage is one turn of a mentor conversation.
type ChatMessage struct {
	Role string `json:"role"` // user | model
	Text string `json:"text"`
}
