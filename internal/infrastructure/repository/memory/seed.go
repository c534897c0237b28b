package memory

import (
	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
)

// Seed data mirrors the league's three-conference layout so the service
// runs end to end without a database.
func SeedConferences() []conference.Conference {
	return []conference.Conference{
		{ID: 1, Season: "2025", Name: "The Legions of Mars", LeagueID: "1180276953741429760"},
		{ID: 2, Season: "2025", Name: "The Guardians of Jupiter", LeagueID: "1180276953741429761"},
		{ID: 3, Season: "2025", Name: "Vulcan's Oathsworn", LeagueID: "1180276953741429762"},
		{ID: 4, Season: "2024", Name: "The Legions of Mars", LeagueID: "1051592789462589440"},
		{ID: 5, Season: "2024", Name: "The Guardians of Jupiter", LeagueID: "1051592789462589441"},
		{ID: 6, Season: "2024", Name: "Vulcan's Oathsworn", LeagueID: "1051592789462589442"},
	}
}

func SeedTeams() []conference.Team {
	return []conference.Team{
		{RosterID: 1, ConferenceID: 1, Name: "Praetorian Guard", OwnerID: "owner-mars-01"},
		{RosterID: 2, ConferenceID: 1, Name: "Centurion Chargers", OwnerID: "owner-mars-02"},
		{RosterID: 3, ConferenceID: 1, Name: "Crimson Cohort", OwnerID: "owner-mars-03"},
		{RosterID: 4, ConferenceID: 1, Name: "Iron Phalanx", OwnerID: "owner-mars-04"},
		{RosterID: 1, ConferenceID: 2, Name: "Thunder Eagles", OwnerID: "owner-jupiter-01"},
		{RosterID: 2, ConferenceID: 2, Name: "Storm Callers", OwnerID: "owner-jupiter-02"},
		{RosterID: 3, ConferenceID: 2, Name: "Sky Sentinels", OwnerID: "owner-jupiter-03"},
		{RosterID: 4, ConferenceID: 2, Name: "Olympus Rising", OwnerID: "owner-jupiter-04"},
		{RosterID: 1, ConferenceID: 3, Name: "Forge Masters", OwnerID: "owner-vulcan-01"},
		{RosterID: 2, ConferenceID: 3, Name: "Anvil Breakers", OwnerID: "owner-vulcan-02"},
		{RosterID: 3, ConferenceID: 3, Name: "Ember Wardens", OwnerID: "owner-vulcan-03"},
		{RosterID: 4, ConferenceID: 3, Name: "Molten Legion", OwnerID: "owner-vulcan-04"},
	}
}
