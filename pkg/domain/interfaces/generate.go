package interfaces

//go:generate go run github.com/matryer/moq@v0.5.3 -out ../mock/interfaces.go -pkg mock -stub . TicketAPI LiveChannel LiveListener Notifier
