package homework

// Verdicts maps every known submission status to its notification text.
//
// The key set is a behavioral contract: any status outside it is a hard
// ErrParse, never silently skipped. The texts themselves are presentation.
var Verdicts = map[string]string{
	"approved":  "The reviewer liked it. Hooray! The submission is accepted.",
	"reviewing": "The submission is being reviewed.",
	"rejected":  "The submission was checked: the reviewer left remarks.",
}
