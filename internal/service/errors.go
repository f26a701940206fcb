package service

import "errors"

var (
	// ErrMalformedNotification - тело webhook не похоже на уведомление (ответ 400)
	ErrMalformedNotification = errors.New("malformed notification")
	// ErrInvalidSignature - x-signature не совпал с секретом webhook (ответ 400)
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrNotificationIgnored - уведомление не про платёж, подтверждаем и не обрабатываем
	ErrNotificationIgnored = errors.New("notification ignored")
	// ErrPaymentNotFound - провайдер не отдал платёж (не-2xx или транспортная ошибка)
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrNoPayments - поиск провайдера по external reference ответил, но платежей нет
	ErrNoPayments = errors.New("no payments for external reference")
)
