// File: database/repository/appointment/appointment_mongo.go
package appointmentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medisched/config"
	"medisched/database"
	"medisched/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAppointmentRepo implements AppointmentRepository using MongoDB.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo constructs a new MongoDB AppointmentRepository.
func NewMongoAppointmentRepo() AppointmentRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &MongoAppointmentRepo{coll: db.Collection("appointments")}
}

// Insert persists a new appointment. The unique partial index rejects a
// second non-terminal appointment on the same (doctor, date, startTime).
func (repo *MongoAppointmentRepo) Insert(ctx context.Context, appt *models.Appointment) error {
	appt.Active = !appt.Status.IsTerminal()
	if _, err := repo.coll.InsertOne(ctx, appt); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("error inserting appointment: %w", err)
	}
	return nil
}

// GetByID retrieves an appointment document by ID.
func (repo *MongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&appt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching appointment with id %s: %w", id, err)
	}
	return &appt, nil
}

// ListByDoctorAndDate returns the doctor's appointments for one date,
// optionally narrowed to a status set, ordered by start time.
func (repo *MongoAppointmentRepo) ListByDoctorAndDate(ctx context.Context, doctorID, date string, statuses []models.AppointmentStatus) ([]models.Appointment, error) {
	filter := bson.M{"doctorId": doctorID, "date": date}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})
	return repo.find(ctx, filter, opts)
}

// List returns appointments matching the filter, ordered by date then
// start time.
func (repo *MongoAppointmentRepo) List(ctx context.Context, f ListFilter) ([]models.Appointment, error) {
	filter := bson.M{}
	if f.DoctorID != "" {
		filter["doctorId"] = f.DoctorID
	}
	if f.PatientID != "" {
		filter["patientId"] = f.PatientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.StartDate != "" || f.EndDate != "" {
		dateRange := bson.M{}
		if f.StartDate != "" {
			dateRange["$gte"] = f.StartDate
		}
		if f.EndDate != "" {
			dateRange["$lte"] = f.EndDate
		}
		filter["date"] = dateRange
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}})
	return repo.find(ctx, filter, opts)
}

func (repo *MongoAppointmentRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Appointment, error) {
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("error decoding appointments: %w", err)
	}
	return appts, nil
}

// UpdateSchedule moves a still-active appointment to a new slot in one
// conditional update, so a terminal transition racing in concurrently
// cannot be overwritten. Returns (nil, nil) when the guard did not match.
func (repo *MongoAppointmentRepo) UpdateSchedule(ctx context.Context, id, date, startTime, endTime string, record models.RescheduleRecord, updatedBy string) (*models.Appointment, error) {
	filter := bson.M{"id": id, "active": true}
	update := bson.M{
		"$set": bson.M{
			"date":      date,
			"startTime": startTime,
			"endTime":   endTime,
			"updatedBy": updatedBy,
			"updatedAt": time.Now().UTC(),
		},
		"$push": bson.M{"history": record},
	}
	return repo.findOneAndUpdate(ctx, filter, update)
}

// UpdateStatus transitions the appointment only while it still holds the
// expected current status. Returns (nil, nil) when the guard did not match.
func (repo *MongoAppointmentRepo) UpdateStatus(ctx context.Context, id string, from, to models.AppointmentStatus, updatedBy string) (*models.Appointment, error) {
	filter := bson.M{"id": id, "status": from}
	update := bson.M{
		"$set": bson.M{
			"status":    to,
			"active":    !to.IsTerminal(),
			"updatedBy": updatedBy,
			"updatedAt": time.Now().UTC(),
		},
	}
	return repo.findOneAndUpdate(ctx, filter, update)
}

// SetMeetingLink attaches a meeting link to a confirmed virtual
// appointment. Returns (nil, nil) when the appointment no longer qualifies.
func (repo *MongoAppointmentRepo) SetMeetingLink(ctx context.Context, id, link, updatedBy string) (*models.Appointment, error) {
	filter := bson.M{"id": id, "isVirtual": true, "status": models.StatusConfirmed}
	update := bson.M{
		"$set": bson.M{
			"meetingLink": link,
			"updatedBy":   updatedBy,
			"updatedAt":   time.Now().UTC(),
		},
	}
	return repo.findOneAndUpdate(ctx, filter, update)
}

func (repo *MongoAppointmentRepo) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Appointment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var appt models.Appointment
	err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateSlot
		}
		return nil, fmt.Errorf("error updating appointment: %w", err)
	}
	return &appt, nil
}

// Delete removes an appointment document entirely.
func (repo *MongoAppointmentRepo) Delete(ctx context.Context, id string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("error deleting appointment %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkNoShows flips elapsed active appointments to no-show. Dates and
// clock values are zero-padded strings, so lexicographic comparison is
// chronological comparison.
func (repo *MongoAppointmentRepo) MarkNoShows(ctx context.Context, today, nowClock string) (int64, error) {
	filter := bson.M{
		"active": true,
		"$or": bson.A{
			bson.M{"date": bson.M{"$lt": today}},
			bson.M{"date": today, "endTime": bson.M{"$lte": nowClock}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"status":    models.StatusNoShow,
			"active":    false,
			"updatedBy": "system",
			"updatedAt": time.Now().UTC(),
		},
	}
	res, err := repo.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("error marking no-shows: %w", err)
	}
	return res.ModifiedCount, nil
}
