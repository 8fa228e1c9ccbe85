package services

import (
	"context"
)

// SeedNode is one entry of a taxonomy to seed. Children keep their order,
// which becomes their position.
type SeedNode struct {
	Name        string
	Description string
	Children    []SeedNode
}

// DefaultTaxonomy is the stock three-level category tree.
var DefaultTaxonomy = []SeedNode{
	{Name: "Vehicles (Accidents, traffic, & parking)", Children: []SeedNode{
		{Name: "Accident", Children: []SeedNode{
			{Name: "Hit and run", Description: "Car ran into someone and left before police arrived"},
			{Name: "Leaving the scene", Description: "Someone damaged property and left before police came"},
			{Name: "Pedestrian hit", Description: "Vehicle ran into someone walking or running"},
			{Name: "Vehicle accident", Description: "Car wrecks and bicycle crashes"},
		}},
		{Name: "Parking", Children: []SeedNode{
			{Name: "Parking in crosswalk", Description: "Parked car preventing people from safely crossing a street"},
			{Name: "Car blocking my driveway", Description: "Car parked illegally in front of a driveway"},
			{Name: "Illegal handicapped parking", Description: "Car parked in a handicapped spot without a handicapped sticker"},
			{Name: "Blocked fire hydrant", Description: "Car parked in front of a fire hydrant"},
			{Name: "Other illegal parking", Description: "Other illegal parking (no parking zones, cars on sidewalk, cars in bikelane, cars in bus stops)"},
			{Name: "Parking without valid permit", Description: "Cars parked in a zone requiring a parking permit with expired or missing permit"},
		}},
		{Name: "Traffic", Children: []SeedNode{
			{Name: "Abandoned Vehicle", Description: "Car has been in same location for significant amount of time"},
			{Name: "Disabled Vehicle", Description: "Car on the road or side of road is not running properly"},
			{Name: "Drunk Driver", Description: "Driver intoxicated while driving a car"},
			{Name: "Missing sign or broken signal", Description: "Traffic light out of order or traffic sign fallen/hidden"},
			{Name: "Obstruction in roadway", Description: "Something blocking the road that could be dangerous"},
			{Name: "Other vehicle or traffic problems", Description: "Any other problems with vehicles or traffic not described here"},
			{Name: "Traffic congestion", Description: "Often referred to by drivers as stuck in traffic"},
			{Name: "Vehicle running, no driver", Description: "Car appears to be on and running, but nobody is inside it"},
			{Name: "Wreckless driving", Description: "Someone is driving dangerously and may cause harm to other people"},
		}},
	}},
}

// Seed creates the nodes of taxonomy that are missing, matching existing
// categories by name under the same parent. It returns how many it created.
func (s *CategoryService) Seed(ctx context.Context, taxonomy []SeedNode) (int, error) {
	tree, err := loadTree(ctx, s.store)
	if err != nil {
		return 0, err
	}
	created := 0
	var seed func(nodes []SeedNode, parentID *int64) error
	seed = func(nodes []SeedNode, parentID *int64) error {
		for pos, n := range nodes {
			id, ok := findChild(tree, parentID, n.Name)
			if !ok {
				position := pos
				in := CategoryInput{Name: n.Name, ParentID: parentID, Position: &position}
				if n.Description != "" {
					desc := n.Description
					in.Description = &desc
				}
				c, err := s.Create(ctx, in)
				if err != nil {
					return err
				}
				id = c.ID
				created++
			}
			if err := seed(n.Children, &id); err != nil {
				return err
			}
		}
		return nil
	}
	if err := seed(taxonomy, nil); err != nil {
		return created, err
	}
	s.log.Info().Int("created", created).Msg("taxonomy seeded")
	return created, nil
}

func findChild(tree *Tree, parentID *int64, name string) (int64, bool) {
	peers := tree.Roots()
	if parentID != nil {
		peers = tree.Children(*parentID)
	}
	for _, c := range peers {
		if c.Name == name {
			return c.ID, true
		}
	}
	return 0, false
}
