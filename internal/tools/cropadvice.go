package tools

import "fmt"

type cropAdviceArgs struct {
	Crop     string `json:"crop"`
	Stage    string `json:"stage"`
	Issue    string `json:"issue"`
	Location string `json:"location"`
}

type issueAdvice struct {
	Problem        string `json:"problem,omitempty"`
	Solution       string `json:"solution,omitempty"`
	Message        string `json:"message,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

type cropAdvicePayload struct {
	Crop               string            `json:"crop"`
	CurrentStageAdvice string            `json:"current_stage_advice,omitempty"`
	IssueAdvice        *issueAdvice      `json:"issue_advice,omitempty"`
	StageWiseGuide     map[string]string `json:"stage_wise_guide,omitempty"`
	SafetyReminder     string            `json:"safety_reminder"`
}

type genericAdvicePayload struct {
	Crop        string   `json:"crop"`
	Message     string   `json:"message"`
	GeneralTips []string `json:"general_tips"`
	Contact     string   `json:"contact"`
}

const safetyReminder = "Always wear protective equipment when handling pesticides. Follow recommended dosage. Dispose of empty containers safely."

func (e *Executor) executeAnalyzeCropAdvice(args map[string]any) string {
	var a cropAdviceArgs
	if err := decodeArgs(args, &a); err != nil {
		return errorJSON("invalid crop advice arguments")
	}

	entry, ok := e.crops.Lookup(a.Crop)
	if !ok {
		return marshalResult(genericAdvicePayload{
			Crop:    a.Crop,
			Message: fmt.Sprintf("Specific database entry not available for %s. Here is general advice:", a.Crop),
			GeneralTips: []string{
				"Use certified seeds from authorized dealers",
				"Get soil tested before applying fertilizers",
				"Follow integrated pest management (IPM) practices",
				"Maintain field hygiene by removing crop residues",
				"Consult local KVK for region-specific recommendations",
			},
			Contact: "Visit your nearest Krishi Vigyan Kendra (KVK) for personalized guidance",
		})
	}

	payload := cropAdvicePayload{
		Crop:           a.Crop,
		SafetyReminder: safetyReminder,
	}

	if a.Stage != "" {
		if advice, ok := entry.Stages[a.Stage]; ok {
			payload.CurrentStageAdvice = advice
		} else {
			payload.CurrentStageAdvice = "Stage not recognized. Provide: sowing, vegetative, flowering, maturity, or harvest."
		}
	}

	if a.Issue != "" {
		if problem, solution, ok := entry.MatchIssue(a.Issue); ok {
			payload.IssueAdvice = &issueAdvice{Problem: problem, Solution: solution}
		} else {
			payload.IssueAdvice = &issueAdvice{
				Message:        fmt.Sprintf("Specific solution for %q not in database.", a.Issue),
				Recommendation: "Take photos and consult local agriculture officer or use the crop health scanner in the app.",
			}
		}
	}

	if a.Stage == "" && a.Issue == "" {
		payload.StageWiseGuide = entry.Stages
	}

	return marshalResult(payload)
}
