package project

import "time"

// SampleProjects returns the demo projects offered by "Add Demo Data"
func SampleProjects() []Fields {
	return []Fields{
		{
			Title:       "React Dashboard",
			Description: "A modern dashboard built with React and Firebase for project management.",
			Status:      StatusInProgress,
			GitHubURL:   "https://github.com/facebook/react",
		},
		{
			Title:       "API Integration Suite",
			Description: "Comprehensive API integration examples including GitHub, weather, and news APIs.",
			Status:      StatusCompleted,
			GitHubURL:   "https://github.com/microsoft/vscode",
		},
		{
			Title:       "Chart Analytics",
			Description: "Data visualization components using Chart.js for project analytics and reporting.",
			Status:      StatusTesting,
			GitHubURL:   "https://github.com/chartjs/Chart.js",
		},
		{
			Title:       "Firebase Authentication",
			Description: "Secure user authentication system with email/password and social login options.",
			Status:      StatusCompleted,
			GitHubURL:   "https://github.com/firebase/firebase-js-sdk",
		},
		{
			Title:       "Responsive Design System",
			Description: "Tailwind CSS-based component library with responsive design patterns.",
			Status:      StatusPlanning,
			GitHubURL:   "https://github.com/tailwindlabs/tailwindcss",
		},
	}
}

// sampleDates are the creation dates of the demo projects
var sampleDates = []time.Time{
	time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC),
}

// SeedSamples inserts the demo projects for userID with their original dates.
// Used to populate the in-memory store in test mode.
func SeedSamples(repo *MemoryRepository, userID string) {
	for i, f := range SampleProjects() {
		repo.Insert(Project{
			UserID:      userID,
			Title:       f.Title,
			Description: f.Description,
			Status:      f.Status,
			GitHubURL:   f.GitHubURL,
			CreatedAt:   sampleDates[i],
		})
	}
}
