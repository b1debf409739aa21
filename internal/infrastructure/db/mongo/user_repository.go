package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

const (
	collectionUsers    = "users"
	collectionCounters = "counters"

	userSequence = "users"

	defaultOpTimeout = 5 * time.Second
)

// UserRepository stores users in MongoDB. Ids are sequential integers taken
// from a counters collection.
type UserRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
	timeout  time.Duration
}

func NewUserRepository(db *mongo.Database, timeout time.Duration) *UserRepository {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &UserRepository{
		col:      db.Collection(collectionUsers),
		counters: db.Collection(collectionCounters),
		timeout:  timeout,
	}
}

type mongoUser struct {
	ID            int64  `bson:"_id"`
	Email         string `bson:"email"`
	PasswordHash  string `bson:"password_hash"`
	FirstName     string `bson:"first_name"`
	LastName      string `bson:"last_name"`
	PhoneNumber   string `bson:"phone_number,omitempty"`
	EmailVerified bool   `bson:"email_verified"`
	IsActive      bool   `bson:"is_active"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
}

// Create assigns the next id and inserts the user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	created := *user
	created.ID = id
	created.Email = domain.NormalizeEmail(user.Email)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}

	if _, err := r.col.InsertOne(ctx, toDocument(&created)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, storeError("insert user", err)
	}
	return &created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

// Update applies the non-nil fields of update and returns the stored user.
func (r *UserRepository) Update(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, buildUpdate(update, time.Now().UTC()), opts).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeError("update user", err)
	}
	return fromDocument(&mu), nil
}

// EnsureIndexes creates the unique email index on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mu mongoUser
	if err := r.col.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeError("find user", err)
	}
	return fromDocument(&mu), nil
}

func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, storeError("next user id", err)
	}
	return counter.Seq, nil
}

func buildUpdate(u domain.UserUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now.Unix()}
	if u.PasswordHash != nil {
		set["password_hash"] = *u.PasswordHash
	}
	if u.EmailVerified != nil {
		set["email_verified"] = *u.EmailVerified
	}
	if u.IsActive != nil {
		set["is_active"] = *u.IsActive
	}
	return bson.M{"$set": set}
}

func toDocument(u *domain.User) mongoUser {
	return mongoUser{
		ID:            u.ID,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PhoneNumber:   u.PhoneNumber,
		EmailVerified: u.EmailVerified,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt.Unix(),
		UpdatedAt:     u.UpdatedAt.Unix(),
	}
}

func fromDocument(mu *mongoUser) *domain.User {
	return &domain.User{
		ID:            mu.ID,
		Email:         mu.Email,
		PasswordHash:  mu.PasswordHash,
		FirstName:     mu.FirstName,
		LastName:      mu.LastName,
		PhoneNumber:   mu.PhoneNumber,
		EmailVerified: mu.EmailVerified,
		IsActive:      mu.IsActive,
		CreatedAt:     unixToTime(mu.CreatedAt),
		UpdatedAt:     unixToTime(mu.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

func storeError(op string, err error) error {
	if mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, domain.ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}
