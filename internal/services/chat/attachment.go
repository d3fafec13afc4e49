package chat

import (
	"path/filepath"
	"strings"

	"supportchat/internal/models/chat"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// InferMessageType derives the message type from the attachment file name.
// No attachment means a plain text message.
func InferMessageType(attachmentName *string) chat.MessageType {
	if attachmentName == nil || *attachmentName == "" {
		return chat.MessageTypeText
	}
	ext := strings.ToLower(filepath.Ext(*attachmentName))
	if imageExtensions[ext] {
		return chat.MessageTypeImage
	}
	return chat.MessageTypeFile
}
