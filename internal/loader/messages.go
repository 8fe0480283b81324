package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"whatsapp-bulksender/internal/messaging"
)

type messageSpec struct {
	Text      string `yaml:"text"`
	Image     string `yaml:"image"`
	JointSend bool   `yaml:"joint_send"`
}

// MessagesFromYAML reads the configured message rotation. Every entry must
// carry text, an image, or both.
func MessagesFromYAML(filePath string) ([]messaging.Message, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}

	var specs []messageSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse messages file: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("messages file is empty")
	}

	msgs := make([]messaging.Message, 0, len(specs))
	for i, spec := range specs {
		msg := messaging.Message{
			Text:          spec.Text,
			ImageRef:      spec.Image,
			JointSendMode: spec.JointSend,
		}
		if !msg.Deliverable() {
			return nil, fmt.Errorf("message %d has neither text nor image", i+1)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// ImageResolver resolves message image references relative to the directory
// the message file lives in.
func ImageResolver(baseDir string) messaging.ImageResolver {
	return func(ref string) string {
		if ref == "" {
			return ""
		}
		if filepath.IsAbs(ref) {
			return ref
		}
		abs, err := filepath.Abs(filepath.Join(baseDir, ref))
		if err != nil {
			return ""
		}
		return abs
	}
}
