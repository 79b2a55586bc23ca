package transport

import "github.com/google/uuid"

type RegisterRequest struct {
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"dateOfBirth"`
	Avatar      string `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	CurrentRefreshToken string `json:"currentRefreshToken"`
}

type PatchAuthorRequest struct {
	Name        *string `json:"name"`
	Surname     *string `json:"surname"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	DateOfBirth *string `json:"dateOfBirth"`
	Avatar      *string `json:"avatar"`
	Role        *string `json:"role"`
}

type ReadTime struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

type CreateBlogRequest struct {
	Category string      `json:"category"`
	Title    string      `json:"title"`
	Cover    string      `json:"cover"`
	ReadTime ReadTime    `json:"readTime"`
	Content  string      `json:"content"`
	Authors  []uuid.UUID `json:"authors"`
}

type PatchReadTime struct {
	Value *int    `json:"value"`
	Unit  *string `json:"unit"`
}

type PatchBlogRequest struct {
	Category *string        `json:"category"`
	Title    *string        `json:"title"`
	ReadTime *PatchReadTime `json:"readTime"`
	Content  *string        `json:"content"`
}

type CommentRequest struct {
	Comment string `json:"comment"`
	Rate    int    `json:"rate"`
}
