package entity

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"

	ApprovalApproved = "APPROVED"
	ApprovalPending  = "PENDING_APPROVAL"
	ApprovalRejected = "REJECTED"
)

type User struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Number         string `json:"number"`
	Address        string `json:"address"`
	Role           string `json:"role"`
	ApprovalStatus string `json:"approvalStatus"`
	PasswordHash   string `json:"-"`
}

/*
Mysql Schema (primary shard only):

CREATE TABLE users (
	id BIGINT PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	email VARCHAR(150) NOT NULL UNIQUE,
	number VARCHAR(20) NULL UNIQUE,
	...
);
*/
