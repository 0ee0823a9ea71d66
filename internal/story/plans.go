package story

// AddPlan appends generationID to the story unless it is already there.
func AddPlan(generationID string) Plan {
	return func(confirmed Story) (Mutation, bool) {
		if generationID == "" || confirmed.Has(generationID) {
			return Mutation{}, false
		}
		return Mutation{Kind: KindAdd, StoryID: confirmed.ID, GenerationID: generationID}, true
	}
}

// RemovePlan drops generationID from the story. Removing an item that is
// already gone sends nothing.
func RemovePlan(generationID string) Plan {
	return func(confirmed Story) (Mutation, bool) {
		if !confirmed.Has(generationID) {
			return Mutation{}, false
		}
		return Mutation{Kind: KindRemove, StoryID: confirmed.ID, GenerationID: generationID}, true
	}
}
