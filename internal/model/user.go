package model

// UserRole 账号体系由认证服务维护，这里只保留 JWT 中携带的角色
type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Parent  UserRole = "parent"
	Admin   UserRole = "admin"
)
