package query

// stopWords are filtered out before synonym lookup so that filler words never
// trigger expansion.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "shall": {}, "can": {},
	"need": {}, "dare": {}, "ought": {}, "used": {}, "to": {}, "of": {},
	"in": {}, "for": {}, "on": {}, "with": {}, "at": {}, "by": {}, "from": {},
	"as": {}, "into": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "above": {}, "below": {}, "between": {}, "under": {},
	"again": {}, "further": {}, "then": {}, "once": {}, "here": {},
	"there": {}, "when": {}, "where": {}, "why": {}, "how": {}, "all": {},
	"each": {}, "few": {}, "more": {}, "most": {}, "other": {}, "some": {},
	"such": {}, "no": {}, "nor": {}, "not": {}, "only": {}, "own": {},
	"same": {}, "so": {}, "than": {}, "too": {}, "very": {}, "just": {},
	"and": {}, "but": {}, "if": {}, "or": {}, "because": {}, "until": {},
	"while": {}, "what": {}, "which": {}, "who": {}, "whom": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "am": {}, "i": {}, "me": {},
	"my": {}, "myself": {}, "we": {}, "our": {}, "ours": {},
	"ourselves": {}, "you": {}, "your": {}, "yours": {}, "yourself": {},
	"yourselves": {}, "he": {}, "him": {}, "his": {}, "himself": {},
	"she": {}, "her": {}, "hers": {}, "herself": {}, "it": {}, "its": {},
	"itself": {}, "they": {}, "them": {}, "their": {}, "theirs": {},
	"themselves": {},
}

// domainSynonyms maps robotics vocabulary to related terms used to widen
// retrieval for short queries.
var domainSynonyms = map[string][]string{
	"robot":        {"robotics", "robotic", "humanoid"},
	"ai":           {"artificial intelligence", "machine learning", "ml"},
	"vision":       {"computer vision", "visual perception", "image processing"},
	"motion":       {"movement", "locomotion", "kinematics"},
	"sensor":       {"sensors", "perception", "sensing"},
	"control":      {"controller", "controlling", "actuation"},
	"learning":     {"training", "machine learning", "neural network"},
	"planning":     {"path planning", "motion planning", "trajectory"},
	"manipulation": {"grasping", "handling", "pick and place"},
	"navigation":   {"localization", "mapping", "slam"},
	"hri":          {"human robot interaction", "human-robot interaction"},
	"safety":       {"safe", "collision avoidance", "risk"},
	"ethics":       {"ethical", "responsible ai", "fairness"},
}
