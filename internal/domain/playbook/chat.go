package playbook

type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

type ChatMessage struct {
	ID       string   `json:"id"`
	Role     ChatRole `json:"role"`
	Content  string   `json:"content"`
	Complete bool     `json:"complete"`
}
