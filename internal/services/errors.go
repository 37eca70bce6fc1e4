package services

import "errors"

// 服务层错误分类，处理器据此映射 HTTP 状态码
var (
	ErrValidation        = errors.New("invalid input")
	ErrUserExists        = errors.New("user already exists")
	ErrInvalidCredential = errors.New("incorrect email or password")
	ErrUserNotFound      = errors.New("user not found")
	ErrResetTokenInvalid = errors.New("token is invalid or has expired")
	ErrMailDelivery      = errors.New("there was a problem sending the email, please try again later")
	ErrBlockedByContact  = errors.New("you have been blocked by this user")
	ErrBlockedContact    = errors.New("you have blocked this user")
	ErrNoMessages        = errors.New("no messages found")
	ErrUploadFailed      = errors.New("error uploading media, please try again later")
)
