package models

import "time"

const (
	MetricTotalRepos = "total_repos"
	MetricTotalStars = "total_stars"
)

// MetricValue is an open document: named fields mapped to primitives or
// nested documents. New metric kinds need no schema change.
type MetricValue map[string]any

// Metric is a cached aggregate keyed by (UserID, Key).
type Metric struct {
	UserID          int64       `bson:"userId" json:"userId"`
	Key             string      `bson:"metricKey" json:"metricKey"`
	Value           MetricValue `bson:"metricValue" json:"metricValue"`
	LastRefreshedAt time.Time   `bson:"lastRefreshedAt" json:"lastRefreshedAt"`
}

// Repository is one entry of the provider's repository listing.
type Repository struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	StargazersCount int64  `json:"stargazers_count"`
}
