// Package hunter holds analysis modules for the hunter specializations.
package hunter

// Spell, talent and trait ids.
const (
	// Survival
	LatentPoisonTrait  = 273283
	LatentPoisonDebuff = 273286
	SerpentStingSV     = 259491
	RaptorStrike       = 186270
	RaptorStrikeAspect = 265189
	MongooseBite       = 259387
	MongooseBiteAspect = 265888

	// Beast Mastery
	BeastCleavePetBuff = 118455
	BeastCleaveDamage  = 118459
	BeastCleaveBuff    = 268877
	MultiShotBM        = 2643

	// Marksmanship
	ExplosiveShotTalent = 212431
	ExplosiveShotDamage = 212680
)

// raptorMongooseVariants are the casts that consume Latent Poison.
var raptorMongooseVariants = map[int]bool{
	RaptorStrike:       true,
	RaptorStrikeAspect: true,
	MongooseBite:       true,
	MongooseBiteAspect: true,
}
