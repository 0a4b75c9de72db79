package services

import (
	"strings"

	"ticketshub/models"
)

var popularCities = []models.City{
	{City: "Mumbai", State: "Maharashtra"},
	{City: "Delhi-NCR", State: "Delhi"},
	{City: "Bengaluru", State: "Karnataka"},
	{City: "Hyderabad", State: "Telangana"},
	{City: "Ahmedabad", State: "Gujarat"},
	{City: "Chandigarh", State: "Chandigarh"},
	{City: "Chennai", State: "Tamil Nadu"},
	{City: "Pune", State: "Maharashtra"},
	{City: "Kolkata", State: "West Bengal"},
	{City: "Kochi", State: "Kerala"},
}

// PopularCities returns the cities offered by the picker, in display order.
func PopularCities() []models.City {
	return append([]models.City(nil), popularCities...)
}

// SearchCities matches query case-insensitively against city names.
// An empty query returns every popular city.
func SearchCities(query string) []models.City {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return PopularCities()
	}

	matches := []models.City{}
	for _, c := range popularCities {
		if strings.Contains(strings.ToLower(c.City), q) {
			matches = append(matches, c)
		}
	}
	return matches
}
