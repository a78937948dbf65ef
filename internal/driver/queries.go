package driver

const (
	GenreFrequencyQuery = `
		MATCH (u:User {state: $state})-[:WATCHED]->(m)-[:HAS]->(g:Genre)
		RETURN g.name AS genre, count(g) AS freq
		ORDER BY freq DESC
	`
)
