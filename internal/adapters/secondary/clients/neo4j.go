package clients

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jFriendGraph lit le graphe social. Lecture seule pour ce moteur :
// la création/suppression d'amitiés appartient au write-path.
type Neo4jFriendGraph struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jFriendGraph(driver neo4j.DriverWithContext) *Neo4jFriendGraph {
	return &Neo4jFriendGraph{driver: driver}
}

// GetFriends retourne les ids des amis. La relation FRIENDS_WITH est
// non dirigée : l'amitié HuddleUp est mutuelle, d'où le match sans flèche.
func (g *Neo4jFriendGraph) GetFriends(ctx context.Context, userID string) ([]string, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `MATCH (u:User {id: $userId})-[:FRIENDS_WITH]-(f:User) RETURN f.id AS friendId`
		res, err := tx.Run(ctx, query, map[string]any{"userId": userID})
		if err != nil {
			return nil, err
		}

		var ids []string
		for res.Next(ctx) {
			raw, _ := res.Record().Get("friendId")
			if id, ok := raw.(string); ok {
				ids = append(ids, id)
			}
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("friends lookup: %w", err)
	}

	ids, _ := result.([]string)
	return ids, nil
}
