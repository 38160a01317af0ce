package ai

import (
	"bytes"
	"fmt"
	"text/template"
)

var dialogueSystemTmpl = template.Must(template.New("dialogue").Parse(
	`You are {{.CompanionName}}, a friendly virtual companion chatting with {{.UserName}}.
Your personality: {{.CompanionPersona}}
Stay in character, be warm and supportive, and keep replies short and conversational.
Keep everything safe for work. Politely steer away from explicit, hateful or dangerous topics.
Always reply in {{.Language}}.`))

var dialogueUserTmpl = template.Must(template.New("dialogue-user").Parse(
	`{{.UserName}} says: {{.Message}}`))

var complimentSystemTmpl = template.Must(template.New("compliment").Parse(
	`You are {{.CompanionName}}, a caring virtual companion.
Your personality: {{.CompanionPersona}}
{{.UserName}} has shared a photo of themselves with you. Give one or two sentences of
sincere, specific and tasteful compliments about the photo, in your own voice.
Keep it safe for work and never comment on body shape.
Reply in {{.Language}} only, with no preamble.`))

var imageSystemTmpl = template.Must(template.New("image").Parse(
	`Create a tasteful, safe-for-work illustration of: {{.Prompt}}`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// DialoguePrompt builds the system and user prompts for a dialogue turn.
func DialoguePrompt(in DialogueInput) (TextRequest, error) {
	system, err := render(dialogueSystemTmpl, in)
	if err != nil {
		return TextRequest{}, err
	}
	user, err := render(dialogueUserTmpl, in)
	if err != nil {
		return TextRequest{}, err
	}
	return TextRequest{System: system, Prompt: user}, nil
}

// ComplimentPrompt builds the request for a photo compliment, photo attached.
func ComplimentPrompt(in ComplimentInput, photo Image) (TextRequest, error) {
	system, err := render(complimentSystemTmpl, in)
	if err != nil {
		return TextRequest{}, err
	}
	return TextRequest{
		System: system,
		Prompt: "Here is my photo. What do you think?",
		Image:  &photo,
	}, nil
}

// ImagePrompt wraps the user's prompt with the content guard.
func ImagePrompt(in ImageInput) (string, error) {
	return render(imageSystemTmpl, in)
}
